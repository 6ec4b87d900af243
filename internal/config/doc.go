// Package config provides spanstorm's typed configuration.
//
// Settings are read from a TOML file (with @include support), then
// overridden by SPANSTORM_* environment variables, and finally decoded
// into a Config value:
//
//	[engine]
//	newline_unit = 1          # linear length of a block boundary
//	insert_at_start = "shift" # "shift" or "grow"
//
//	[reconcile]
//	arbiter = "ask"           # ask, existing, api, lua
//	script = "decide.lua"
//	watch_script = false
//
//	[log]
//	level = "info"
//	development = false
//
// Environment variables follow SPANSTORM_<SECTION>_<SETTING>, for
// example SPANSTORM_ENGINE_NEWLINE_UNIT=1.
package config
