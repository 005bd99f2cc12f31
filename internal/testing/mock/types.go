package mock

// Record is one NMC resource as decoded from fixture YAML.
type Record = map[string]interface{}

// NMCFixtures holds the resources served by NMCServer, keyed by collection.
type NMCFixtures struct {
	Filers            []Record `yaml:"filers"`
	Volumes           []Record `yaml:"volumes"`
	VolumeConnections []Record `yaml:"volume_connections"`
	// VolumeFilers maps a volume GUID to its per-filer details.
	VolumeFilers  map[string][]Record `yaml:"volume_filers"`
	Shares        []Record            `yaml:"shares"`
	Health        []Record            `yaml:"health"`
	Notifications []Record            `yaml:"notifications"`
	Credentials   []Record            `yaml:"credentials"`
}

// ScriptedFailure is a canned error response.
type ScriptedFailure struct {
	Status int
	Detail string
}

// RecordedRequest captures what NMCServer received.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
}
