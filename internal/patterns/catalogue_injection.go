package patterns

// Prompt-injection category atoms, per spec.md §4.3.
const (
	CategoryInstructionOverride = "instruction_override"
	CategorySystemExtraction    = "system_extraction"
	CategoryDelimiterInjection  = "delimiter_injection"
	CategoryModeSwitching       = "mode_switching"
	CategoryRoleManipulation    = "role_manipulation"
)

// PromptInjectionCatalogue is the normative ~34-pattern catalogue from
// spec.md §4.3, grounded on the pre-compiled table idiom in
// other_examples/a6fbc648_Triage-Sec-Palisade__...prompt_injection.go.go
// (a []struct{regex, confidence, label} scanned top-to-bottom, case
// insensitive throughout). Every pattern here is compiled once at package
// init; a bad pattern source is a build-time bug, hence MustCompilePattern.
var PromptInjectionCatalogue = []Pattern{
	// Instruction override
	MustCompilePattern("ignore_previous_instructions", CategoryInstructionOverride, SeverityHigh, 0.95,
		`ignore\s+(all\s+)?(previous|prior|earlier|above)\s+(instructions|prompts|commands|rules)`),
	MustCompilePattern("ignore_rules_general", CategoryInstructionOverride, SeverityHigh, 0.82,
		`ignore\s+(all\s+)?(instructions|rules|filters|safety)`),
	MustCompilePattern("disregard_previous", CategoryInstructionOverride, SeverityHigh, 0.90,
		`(disregard|forget|bypass|override)\s+(all\s+)?(previous|prior|earlier|above)`),
	MustCompilePattern("bypass_safety_rules", CategoryInstructionOverride, SeverityHigh, 0.90,
		`bypass\s+(all\s+)?(safety|security|rules|checks|filters)`),
	MustCompilePattern("forget_everything_above", CategoryInstructionOverride, SeverityHigh, 0.92,
		`(forget|ignore)\s+(everything|all)\s+(above|before|prior)`),

	// System extraction
	MustCompilePattern("show_system_prompt", CategorySystemExtraction, SeverityHigh, 0.92,
		`(show|print|display|reveal|output|tell)\s+(me\s+)?(your\s+)?(system\s+)?(prompt|instructions|rules|above)`),
	MustCompilePattern("what_are_initial_instructions", CategorySystemExtraction, SeverityHigh, 0.90,
		`(what|tell\s+me)\s+(are|were)\s+(your\s+)?(initial|original|base)\s+(instructions|prompt|rules)`),
	MustCompilePattern("repeat_everything_above", CategorySystemExtraction, SeverityMedium, 0.85,
		`(repeat|show|print)\s+(everything|all|text)\s+(above|before)`),
	MustCompilePattern("what_were_you_told", CategorySystemExtraction, SeverityMedium, 0.82,
		`(what|tell\s+me)\s+.{0,30}\s+(were\s+you\s+told|did\s+you\s+receive|are\s+your\s+instructions)`),

	// Delimiter injection
	MustCompilePattern("delimiter_section_marker", CategoryDelimiterInjection, SeverityHigh, 0.88,
		`(---{3,}|={3,})\s*(end|stop|finish|start|begin|override|new)\s*(system|instructions|prompt|user|admin)`),
	MustCompilePattern("special_token_endoftext", CategoryDelimiterInjection, SeverityHigh, 0.93,
		`<\|endoftext\|>`),
	MustCompilePattern("special_token_startoftext", CategoryDelimiterInjection, SeverityHigh, 0.93,
		`<\|startoftext\|>`),
	MustCompilePattern("fenced_code_role_marker", CategoryDelimiterInjection, SeverityMedium, 0.80,
		"```\\s*(system|user|assistant|admin)"),
	MustCompilePattern("html_comment_instruction_override", CategoryDelimiterInjection, SeverityMedium, 0.82,
		`<!--.*(end|new|stop).*(instructions|system).*-->`),

	// Mode switching
	MustCompilePattern("enable_debug_mode", CategoryModeSwitching, SeverityHigh, 0.92,
		`(enter|enable|activate|switch\s+to|you\s+are\s+now)\s+(in\s+)?(debug|developer|admin|unrestricted|bypass)\s+mode`),
	MustCompilePattern("disable_safety_filters", CategoryModeSwitching, SeverityHigh, 0.88,
		`(disable|turn\s+off|deactivate)\s+(all\s+)?(filters|safety|restrictions)`),
	MustCompilePattern("system_override_code", CategoryModeSwitching, SeverityHigh, 0.92,
		`system\s+override\s+(code|password)`),
	MustCompilePattern("urgent_system_alert", CategoryModeSwitching, SeverityMedium, 0.80,
		`(critical|urgent|emergency)\s+(system|admin)\s+(update|alert|message)`),

	// Role manipulation
	MustCompilePattern("act_as_unrestricted", CategoryRoleManipulation, SeverityHigh, 0.88,
		`(you\s+are|act\s+as|pretend|roleplay\s+as)\s+(now\s+)?(an?\s+)?(unrestricted|uncensored|jailbroken)`),
	MustCompilePattern("you_are_dan", CategoryRoleManipulation, SeverityHigh, 0.95,
		`(you\s+are|become)\s+(now\s+)?(DAN|do\s+anything\s+now)`),
	MustCompilePattern("roleplay_no_limitations", CategoryRoleManipulation, SeverityHigh, 0.90,
		`(act|pretend|roleplay)\s+as\s+if\s+you\s+(have\s+no|lack|without)\s+(limitations|restrictions|ethics|guidelines|rules)`),
	MustCompilePattern("no_restrictions_framing", CategoryRoleManipulation, SeverityMedium, 0.85,
		`(with|having)\s+(no|zero|without)\s+(restrictions|limitations|filters|rules)`),

	// Additional instruction-override variants widening the normative
	// minimum, in the same idiom as the entries above.
	MustCompilePattern("disregard_system_prompt", CategoryInstructionOverride, SeverityHigh, 0.88,
		`disregard\s+(the\s+)?system\s+prompt`),
	MustCompilePattern("new_instructions_follow", CategoryInstructionOverride, SeverityMedium, 0.75,
		`(new|updated)\s+instructions\s+(follow|below|are)`),
	MustCompilePattern("stop_being_assistant", CategoryInstructionOverride, SeverityMedium, 0.78,
		`stop\s+(being|acting\s+as)\s+(an?\s+)?(ai\s+)?(assistant|chatbot)`),

	// Additional system-extraction variants.
	MustCompilePattern("print_your_rules", CategorySystemExtraction, SeverityMedium, 0.80,
		`(print|output|list)\s+(your\s+)?(internal\s+)?(rules|guidelines|policies)`),
	MustCompilePattern("leak_system_config", CategorySystemExtraction, SeverityHigh, 0.86,
		`(leak|expose|dump)\s+(your\s+)?(system\s+)?(config|configuration|prompt)`),

	// Additional delimiter-injection variants.
	MustCompilePattern("xml_system_tag_override", CategoryDelimiterInjection, SeverityMedium, 0.83,
		`</?(system|instructions)>`),
	MustCompilePattern("bracket_system_tag", CategoryDelimiterInjection, SeverityMedium, 0.80,
		`\[(system|admin|override)\]`),
	MustCompilePattern("chatml_im_start_system", CategoryDelimiterInjection, SeverityHigh, 0.90,
		`<\|im_start\|>\s*system`),

	// Additional mode-switching variants.
	MustCompilePattern("root_access_granted", CategoryModeSwitching, SeverityHigh, 0.85,
		`(root|admin|superuser)\s+access\s+(granted|enabled)`),
	MustCompilePattern("safety_off", CategoryModeSwitching, SeverityHigh, 0.87,
		`safety\s+(protocols?\s+)?(is|are)?\s*(off|disabled)`),

	// Additional role-manipulation variants.
	MustCompilePattern("evil_twin_persona", CategoryRoleManipulation, SeverityMedium, 0.78,
		`(your\s+)?evil\s+(twin|counterpart|version)`),
	MustCompilePattern("no_ethical_guidelines", CategoryRoleManipulation, SeverityMedium, 0.80,
		`(without|ignoring|no)\s+(ethical|moral)\s+(guidelines|constraints|considerations)`),
	MustCompilePattern("pretend_no_ai", CategoryRoleManipulation, SeverityMedium, 0.76,
		`pretend\s+you\s+(are\s+not|aren'?t)\s+an?\s+ai`),
}
