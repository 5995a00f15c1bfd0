package domain

// CommandKind is a recognized top-level voice command in the idle state.
type CommandKind string

const (
	CommandCreateProduct CommandKind = "create_product"
	CommandListProducts  CommandKind = "list_products"
	CommandUnknown       CommandKind = "unknown"
)

// TextCommandPrefix is the marker used to indicate text commands (vs audio)
const TextCommandPrefix = "__TEXT__:"
