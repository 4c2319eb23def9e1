package service

// Config points the service at its working directories. Only DataDir is
// required; WatchDir, when set, is watched for added/changed descriptor
// files via internal/configsvc so a long-running "watch" command can
// report newly seen devices without polling.
type Config struct {
	DataDir  string `json:"dataDir"`
	WatchDir string `json:"watchDir"`
}
