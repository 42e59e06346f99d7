// Ideagate is the gateway in front of the reel-idea generator.
//
// It accepts a value promise from the site's form, admits it through the
// origin, method, rate limit, and input checks, wraps it in a fixed prompt,
// and relays a single completion from the generative-language service.
//
// Usage:
//
//	# Start the gateway with defaults and environment overrides
//	ideagate run
//
//	# Start with a configuration file
//	ideagate run --config /etc/ideagate/config.yaml
//
//	# Check a configuration file
//	ideagate validate --config config.yaml
//
//	# Show the prompt a promise would produce
//	ideagate prompt "Ayudo a emprendedoras a vender sin redes"
//
//	# List recent audit records
//	ideagate audit list --limit 20
package main

import (
	"os"

	"guionesreels/ideagate/pkg/cli"
)

func main() {
	os.Exit(cli.ExitCode(Execute()))
}
