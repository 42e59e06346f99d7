// Package secrets resolves credentials such as the completion API key.
//
// Two providers are available and are tried in order:
//
//   - FileProvider reads one file per secret from a mounted directory
//     (Docker/Kubernetes secrets) and can watch it with fsnotify.
//   - EnvProvider reads environment variables, optionally prefixed.
//
// Manager chains them, caches values for a short TTL, and hands out Key
// handles that resolve on every call:
//
//	manager, err := secrets.NewManagerFromConfig(cfg.Secrets)
//	if err != nil {
//	    return err
//	}
//	defer manager.Close()
//
//	provider, err := gemini.NewProvider(pc, manager.Key("GEMINI_API_KEY"))
//
// A rotated file takes effect on the next request: the watcher clears both
// the provider's and the manager's caches.
//
// Secret values are never logged.
package secrets
