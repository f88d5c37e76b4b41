// Package server exposes the backend's REST surface: editor commands
// forwarded to the host, git operations, watcher control, and health.
package server

// Editor command request bodies. Validation bounds mirror what the host
// plugin enforces on its side.

type CreateNodeRequest struct {
	ParentPath string         `json:"parent_path" binding:"required"`
	NodeClass  string         `json:"node_class" binding:"required"`
	NodeName   string         `json:"node_name" binding:"required"`
	Properties map[string]any `json:"properties"`
}

type DeleteNodeRequest struct {
	NodePath string `json:"node_path" binding:"required"`
}

type RenameNodeRequest struct {
	NodePath string `json:"node_path" binding:"required"`
	NewName  string `json:"new_name" binding:"required"`
}

type ReparentNodeRequest struct {
	NodePath      string `json:"node_path" binding:"required"`
	NewParentPath string `json:"new_parent_path" binding:"required"`
}

type GetPropertyRequest struct {
	NodePath string `json:"node_path" binding:"required"`
	Property string `json:"property" binding:"required"`
}

type SetPropertyRequest struct {
	NodePath string `json:"node_path" binding:"required"`
	Property string `json:"property" binding:"required"`
	Value    any    `json:"value" binding:"required"`
}

type AttachResourceRequest struct {
	NodePath     string `json:"node_path" binding:"required"`
	Property     string `json:"property" binding:"required"`
	ResourcePath string `json:"resource_path" binding:"required"`
}

type CreateResourceRequest struct {
	ResourceType string         `json:"resource_type" binding:"required"`
	Properties   map[string]any `json:"properties"`
	SavePath     string         `json:"save_path" binding:"required"`
}

type InstantiateSceneRequest struct {
	ParentPath   string `json:"parent_path" binding:"required"`
	ScenePath    string `json:"scene_path" binding:"required"`
	InstanceName string `json:"instance_name" binding:"required"`
}

type AttachScriptRequest struct {
	NodePath      string `json:"node_path" binding:"required"`
	ScriptPath    string `json:"script_path" binding:"required"`
	ScriptContent string `json:"script_content"`
}

type ConnectSignalRequest struct {
	SourcePath string `json:"source_path" binding:"required"`
	SignalName string `json:"signal_name" binding:"required"`
	TargetPath string `json:"target_path" binding:"required"`
	MethodName string `json:"method_name" binding:"required"`
}

type SetSelectionRequest struct {
	NodePaths []string `json:"node_paths" binding:"required"`
}

type SpawnGridRequest struct {
	ParentPath string    `json:"parent_path" binding:"required"`
	NodeClass  string    `json:"node_class" binding:"required"`
	Rows       int       `json:"rows" binding:"required,gte=1,lte=50"`
	Cols       int       `json:"cols" binding:"required,gte=1,lte=50"`
	Spacing    []float64 `json:"spacing" binding:"required,len=3"`
	NamePrefix string    `json:"name_prefix"`
}

type SpawnRandomRequest struct {
	ParentPath string    `json:"parent_path" binding:"required"`
	NodeClass  string    `json:"node_class" binding:"required"`
	Count      int       `json:"count" binding:"required,gte=1,lte=500"`
	BoundsMin  []float64 `json:"bounds_min" binding:"required,len=3"`
	BoundsMax  []float64 `json:"bounds_max" binding:"required,len=3"`
	NamePrefix string    `json:"name_prefix"`
}

type SpawnAlongPathRequest struct {
	ParentPath string      `json:"parent_path" binding:"required"`
	NodeClass  string      `json:"node_class" binding:"required"`
	Points     [][]float64 `json:"points" binding:"required,min=1"`
	NamePrefix string      `json:"name_prefix"`
}

// Git request bodies.

type GitAddRequest struct {
	Files []string `json:"files" binding:"required,min=1"`
}

type GitRestoreRequest struct {
	Files []string `json:"files" binding:"required,min=1"`
}

type GitCommitRequest struct {
	Message string   `json:"message" binding:"required"`
	Files   []string `json:"files"`
}

type GitCheckoutRequest struct {
	Branch    string `json:"branch" binding:"required"`
	CreateNew bool   `json:"create_new"`
}

// Watcher control bodies.

type WatchStartRequest struct {
	Path string `json:"path" binding:"required"`
}
