//go:build !debug

package keeper

const debugFinalizersEnabled = false
