package config

type Cron struct {
	// 釋放已停用客服之指派的排程（含秒），空白則不啟用
	ReleaseAssignmentsSpec string `mapstructure:"RELEASE_ASSIGNMENTS_SPEC" json:"release_assignments_spec" yaml:"release_assignments_spec"`
}
