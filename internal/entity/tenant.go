package entity

type Tenant struct {
	Name     string `json:"name" validate:"required"`
	Projects int    `json:"projects"`
	Queue    int    `json:"queue"`
}

// Info describes the remote API deployment.
type Info struct {
	Info struct {
		WebsocketURL *string      `json:"websocket_url"`
		Tenant       *string      `json:"tenant"`
		Capabilities Capabilities `json:"capabilities"`
	} `json:"info"`
}

type Capabilities struct {
	JobHistory bool `json:"job_history"`
	Auth       struct {
		Realms       map[string]interface{} `json:"realms,omitempty"`
		DefaultRealm string                 `json:"default_realm,omitempty"`
	} `json:"auth"`
}

type Project struct {
	Name           string          `json:"name" validate:"required"`
	CanonicalName  string          `json:"canonical_name"`
	ConnectionName string          `json:"connection_name"`
	Type           string          `json:"type"`
	Configs        []ProjectConfig `json:"configs,omitempty"`
}

type ProjectConfig struct {
	DefaultBranch string            `json:"default_branch"`
	MergeMode     string            `json:"merge_mode"`
	Pipelines     []ProjectPipeline `json:"pipelines"`
}

type ProjectPipeline struct {
	Name  string `json:"name"`
	Queue string `json:"queue_name"`
}

// JobDefinition is a job as listed by the jobs endpoint.
type JobDefinition struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
	Variants    []struct {
		Parent      *string  `json:"parent"`
		Branches    []string `json:"branches"`
		Description *string  `json:"description"`
	} `json:"variants,omitempty"`
}

type Node struct {
	ID         string   `json:"id" validate:"required"`
	Label      []string `json:"label"`
	Connection string   `json:"connection"`
	Server     string   `json:"server"`
	Provider   string   `json:"provider"`
	State      string   `json:"state"`
	StateTime  float64  `json:"state_time"`
	Comment    *string  `json:"comment"`
}

type Label struct {
	Name string `json:"name" validate:"required"`
}

type Autohold struct {
	ID             string   `json:"id" validate:"required"`
	Tenant         string   `json:"tenant"`
	Project        string   `json:"project"`
	Job            string   `json:"job"`
	RefFilter      string   `json:"ref_filter"`
	MaxCount       int      `json:"max_count"`
	CurrentCount   int      `json:"current_count"`
	Reason         string   `json:"reason"`
	NodeExpiration int      `json:"node_expiration"`
	Expired        *float64 `json:"expired"`
	Nodes          []struct {
		Build string   `json:"build"`
		Nodes []string `json:"nodes"`
	} `json:"nodes"`
}

type ConfigError struct {
	Source struct {
		Project string `json:"project"`
		Branch  string `json:"branch"`
		Path    string `json:"path"`
	} `json:"source_context"`
	Error    string `json:"error" validate:"required"`
	Short    string `json:"short_error"`
	Severity string `json:"severity"`
	Name     string `json:"name"`
}
