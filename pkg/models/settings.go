package models

// Settings holds the configurable options of the settings panel
type Settings struct {
	Notifications NotificationSettings `json:"notifications" yaml:"notifications"`
	Security      SecuritySettings     `json:"security" yaml:"security"`
	Network       NetworkSettings      `json:"network" yaml:"network"`
	System        SystemSettings       `json:"system" yaml:"system"`
}

// NotificationSettings controls how alerts reach operators
type NotificationSettings struct {
	EmailAlerts       bool   `json:"emailAlerts" yaml:"emailAlerts"`
	PushNotifications bool   `json:"pushNotifications" yaml:"pushNotifications"`
	CriticalOnly      bool   `json:"criticalOnly" yaml:"criticalOnly"`
	AlertThreshold    string `json:"alertThreshold" yaml:"alertThreshold"`
}

// SecuritySettings toggles the detection engines
type SecuritySettings struct {
	AutoBlock           bool `json:"autoBlock" yaml:"autoBlock"`
	MLEngine            bool `json:"mlEngine" yaml:"mlEngine"`
	RealTimeScanning    bool `json:"realTimeScanning" yaml:"realTimeScanning"`
	AnomalyDetection    bool `json:"anomalyDetection" yaml:"anomalyDetection"`
	ConfidenceThreshold int  `json:"confidenceThreshold" yaml:"confidenceThreshold"`
}

// NetworkSettings toggles traffic inspection features
type NetworkSettings struct {
	PacketCapture       bool `json:"packetCapture" yaml:"packetCapture"`
	DeepInspection      bool `json:"deepInspection" yaml:"deepInspection"`
	BandwidthMonitoring bool `json:"bandwidthMonitoring" yaml:"bandwidthMonitoring"`
	TrafficAnalysis     bool `json:"trafficAnalysis" yaml:"trafficAnalysis"`
	LogRetention        int  `json:"logRetention" yaml:"logRetention"` // days
}

// SystemSettings holds maintenance options
type SystemSettings struct {
	AutoUpdates     bool   `json:"autoUpdates" yaml:"autoUpdates"`
	BackupEnabled   bool   `json:"backupEnabled" yaml:"backupEnabled"`
	PerformanceMode string `json:"performanceMode" yaml:"performanceMode"`
	LogLevel        string `json:"logLevel" yaml:"logLevel"`
}

// DefaultSettings returns the factory defaults of the settings panel
func DefaultSettings() Settings {
	return Settings{
		Notifications: NotificationSettings{
			EmailAlerts:       true,
			PushNotifications: true,
			CriticalOnly:      false,
			AlertThreshold:    "medium",
		},
		Security: SecuritySettings{
			AutoBlock:           true,
			MLEngine:            true,
			RealTimeScanning:    true,
			AnomalyDetection:    true,
			ConfidenceThreshold: 75,
		},
		Network: NetworkSettings{
			PacketCapture:       true,
			DeepInspection:      true,
			BandwidthMonitoring: true,
			TrafficAnalysis:     true,
			LogRetention:        30,
		},
		System: SystemSettings{
			AutoUpdates:     true,
			BackupEnabled:   true,
			PerformanceMode: "balanced",
			LogLevel:        "info",
		},
	}
}
