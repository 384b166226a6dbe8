package config

import "github.com/spf13/pflag"

// RegisterFlags defines the command-line flags understood by Load.
// Flag defaults only matter for --help; Load takes defaults from its own table.
func RegisterFlags(f *pflag.FlagSet) {
	f.String(ConfigFlag, "", "Config file (default: pom-graph.toml or config.json in the working directory)")
	f.StringP("pom-path", "p", "", "Root POM to analyse")
	f.StringP("output-path", "o", "dependencies.puml", "Where to write the PlantUML diagram")
	f.String("repository", "", "Local Maven repository (default: ~/.m2/repository)")
	f.String("diamond", "first-parent", "How shared dependencies are recorded: first-parent or all-edges")
	f.Bool("print", true, "Print the diagram to stdout")
	f.Bool("watch", false, "Regenerate the diagram when the root POM changes")
	f.Bool("serve", false, "Serve the latest graph over HTTP")
	f.Int("port", 8080, "Port for --serve")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
}
