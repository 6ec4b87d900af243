// Package lua runs conflict-resolution scripts written in Lua.
//
// A script defines a global decide function that receives the conflict
// prompt as a table and returns "existing" or "api":
//
//	function decide(p)
//	    -- p.index, p.total
//	    -- p.candidate: start, end, entity, origin, score, snippet
//	    -- p.conflicts: list of start, end, entity, origin, source, snippet
//	    if p.candidate.score and p.candidate.score > 0.9 then
//	        return "api"
//	    end
//	    return "existing"
//	end
//
// Scripts run in a sandboxed State: only the base, table, string and math
// libraries are available, file loading is disabled and print writes to
// the logger. Each call is bounded by an execution timeout.
//
// A ScriptArbiter can watch its script and reload it when it changes:
//
//	arb, err := lua.NewScriptArbiter("decide.lua")
//	if err != nil {
//	    return err
//	}
//	defer arb.Close()
//
//	w, err := arb.Watch(100 * time.Millisecond)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
package lua
