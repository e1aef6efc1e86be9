// Package backup keeps point-in-time snapshots of the files mcphub rewrites:
// the process registry and the mcphub config file.
//
// Each snapshot lives in its own timestamped directory under the data
// directory and carries a manifest with a SHA256 hash per file:
//
//	~/.mcphub/backups/
//	└── {kind}/
//	    └── {id}/
//	        ├── manifest.json
//	        └── {copied files...}
//
// `mcphub config set` snapshots the config file once per invocation before
// overwriting it, and `mcphub doctor --fix` quarantines a corrupt registry
// with [Manager.Quarantine] so the next command starts from an empty one
// without losing the original bytes.
//
// Restores verify every hash before touching the original location:
//
//	mgr := backup.NewManager(backup.Dir(dataDir))
//	manifests, err := mgr.List(backup.KindRegistry)
//	if err != nil {
//	    return err
//	}
//	err = mgr.Restore(backup.KindRegistry, manifests[0].ID)
package backup
