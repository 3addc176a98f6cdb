package config

// DroneConfig describes one drone in the topology file. Connected lists the
// ids of the drones it has a direct link to; links are declared on both ends.
type DroneConfig struct {
	ID        uint8   `json:"id"`
	Connected []uint8 `json:"connected"`
	PDR       float32 `json:"pdr"`
}

type GeneralConfig struct {
	MaxQueueLength int    `json:"maxQueueLength"`
	LogFile        string `json:"logFile"`
	LogLevel       string `json:"logLevel"`
}

type Config struct {
	Drones  []DroneConfig `json:"drones"`
	General GeneralConfig `json:"general"`
}
