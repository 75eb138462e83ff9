package config

// Config is the top-level configuration structure parsed from mend YAML.
type Config struct {
	Project   Project   `yaml:"project"`
	Build     Build     `yaml:"build"`
	Reports   Reports   `yaml:"reports"`
	Generator Generator `yaml:"generator"`
	Git       Git       `yaml:"git"`
	Guard     Guard     `yaml:"guard"`
	Web       Web       `yaml:"web"`
}

// Project identifies the managed codebase.
type Project struct {
	Name string `yaml:"name"`
	Dir  string `yaml:"dir"`
}

// Build configures the build harness invocation.
type Build struct {
	Command         string `yaml:"command"`          // full build + test + reports
	AnalysisCommand string `yaml:"analysis_command"` // static analysis (PMD)
	Timeout         string `yaml:"timeout"`
}

// Reports holds report file locations relative to the project dir.
type Reports struct {
	SurefireDir  string `yaml:"surefire_dir"`
	JacocoReport string `yaml:"jacoco_report"`
	PMDReport    string `yaml:"pmd_report"`
}

// Generator configures the external patch generation command. The command
// receives a JSON request on stdin and must print the complete replacement
// file content on stdout.
type Generator struct {
	Command string `yaml:"command"`
	Timeout string `yaml:"timeout"`
}

// Git configures version control and publication.
type Git struct {
	Remote      string `yaml:"remote"`
	BaseBranch  string `yaml:"base_branch"`
	CreatePR    bool   `yaml:"create_pr"`
	PRTitle     string `yaml:"pr_title"`
	PushRetries int    `yaml:"push_retries"`
}

// Guard holds the loop safety thresholds.
type Guard struct {
	MaxPasses           int `yaml:"max_passes"`
	StagnationThreshold int `yaml:"stagnation_threshold"`
}

// Web configures the read-only status server.
type Web struct {
	Port int `yaml:"port"`
}
