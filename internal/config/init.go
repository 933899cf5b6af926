package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# sitepub configuration
site:
  title: "My Blog"

content:
  directory: ./content

output:
  directory: ./public

generator:
  command: hugo
  args: ["--minify"]
  # timeout: 5m

commit:
  message_prefix: RELEASE
  author_name: "Site Publisher"
  author_email: "publisher@example.com"

# Pushing is opt-in. Enable and list remotes as "remote/branch".
push:
  enabled: false
  remotes:
    - origin/main
  # retry:
  #   backoff: linear      # fixed|linear|exponential
  #   initial: 1s
  #   max: 30s
  #   max_retries: 2

# auth:
#   type: ssh            # ssh|token|basic
#   key_path: ~/.ssh/id_rsa
#   token: ${GIT_TOKEN}

watch:
  debounce: 2s
  # every: 1h
  publish: false
  # metrics_addr: ":9180"

history:
  path: .sitepub/history.db

# notify:
#   nats_url: nats://localhost:4222
#   subject: sitepub.cycles
`

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
