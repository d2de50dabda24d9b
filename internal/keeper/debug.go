//go:build debug

package keeper

// With the debug build tag, Keeper installs a finalizer that panics if
// a Keeper is garbage collected without Close having been called —
// catches leaked background tasks in tests and local runs. Left off
// release builds since finalizers add GC overhead.
const debugFinalizersEnabled = true
