/*
Package types holds the shared definitions both cache tiers depend on:
the failure-kind taxonomy used for internal error context and log
classification.

# Error Kinds

Four kinds cover every failure path in diskcache and memcache:

  - InvalidArgument: empty key/value, an oversized path, a storage type
    that cannot serve the requested operation.
  - IOFailure: file write/read/delete error, manifest query/update
    error, database open/close error.
  - CorruptState: schema initialization fails against a previously
    working database; this is what triggers the one-shot
    reset-and-retry recovery path.
  - Missing: key absent from the manifest, or present with a file that
    has vanished underneath it.

# Usage

Neither tier returns a types.Error from its public surface. Public
operations report success with a bool, a (value, ok) pair, or a -1
aggregate, matching the contract documented on each engine. Internally
a component wraps the underlying cause once:

	if err != nil {
		return types.NewError(types.IOFailure, "manifest.save", key, err)
	}

and the caller decides whether to log it (when error logging is
enabled) before collapsing it to the public bool/ok contract.

# See Also

  - pkg/diskcache for the on-disk tier
  - pkg/memcache for the in-memory tier
*/
package types
