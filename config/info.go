package config

// AppInfo describes the running build.
type AppInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build"`
}

//nolint:gochecknoglobals
var App = AppInfo{Name: ServiceName, Version: "n/a", Build: "n/a"}
