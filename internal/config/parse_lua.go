package config

import "cuelang.org/go/cue"

// parseLuaSandboxSection extracts optional lua sandbox settings.
func parseLuaSandboxSection(v cue.Value, cfg *Config) error {
	return firstErr(
		optionalInt(v, "lua.timeoutMs", &cfg.Lua.TimeoutMs),
		optionalInt(v, "lua.instructionLimit", &cfg.Lua.InstructionLimit),
	)
}
