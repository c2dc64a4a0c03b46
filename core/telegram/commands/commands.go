package commands

// Command describes a slash command shown in the bot menu. Routing lives in
// the dialog rule table; the registry only resolves aliases and publishes
// descriptions.
type Command struct {
	Description string
	Hidden      bool
	Aliases     []string
}
