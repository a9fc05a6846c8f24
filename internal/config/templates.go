package config

import (
	"fmt"
	"os"
)

// Template returns a commented takctl.toml matching Default.
func Template() string {
	return clientTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(clientTemplate), 0o600)
}

const clientTemplate = `# TAK server streaming endpoint.
host = "localhost"
port = 8089

# "development" tolerates a missing ca_file by skipping verification.
# "production" requires ca_file, cert_file and key_file.
security_mode = "development"
ca_file = ""
cert_file = ""
key_file = ""
# Decrypts PKCS#8 "ENCRYPTED PRIVATE KEY" or legacy encrypted PEM keys.
passphrase = ""
server_name = ""
insecure_skip_verify = false

connect_timeout = "5s"
handshake_timeout = "5s"
poll_interval = "10ms"
read_size = 8192
max_buffered = 16384

# count = 0 sends until interrupted; interval = "0s" disables pacing.
# drift moves each unit up to that many degrees between batches.
[inject]
count = 1
interval = "1s"
drift = 0.0

[listen]
compact = false
filter = ""
verbose = false
reconnect = false
metrics_addr = ""
`
