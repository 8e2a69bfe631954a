package config

import (
	"fmt"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy plus the validation result.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trim := func(s *string) { *s = strings.TrimSpace(*s) }
	trim(&out.Data.Clients)
	trim(&out.Data.GroupAssignment)
	trim(&out.Data.InternalRef)
	trim(&out.Data.MasterComplist)
	trim(&out.Data.Concessions)
	trim(&out.Data.CompDetails)
	trim(&out.Data.UnitHistoryDir)
	trim(&out.Window.AsOf)
	out.Availability.MalformedLayout = strings.ToLower(strings.TrimSpace(out.Availability.MalformedLayout))
	out.LLM.Provider = strings.ToLower(strings.TrimSpace(out.LLM.Provider))
	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	// ---- data files ----
	required := map[string]string{
		"data.clients":          out.Data.Clients,
		"data.group_assignment": out.Data.GroupAssignment,
		"data.internal_ref":     out.Data.InternalRef,
		"data.master_complist":  out.Data.MasterComplist,
		"data.concessions":      out.Data.Concessions,
		"data.comp_details":     out.Data.CompDetails,
		"data.unit_history_dir": out.Data.UnitHistoryDir,
	}
	for _, key := range []string{
		"data.clients", "data.group_assignment", "data.internal_ref", "data.master_complist",
		"data.concessions", "data.comp_details", "data.unit_history_dir",
	} {
		if required[key] == "" {
			res.addErr("%s is required", key)
		}
	}

	// ---- window ----
	if out.Window.Days <= 0 {
		res.addErr("window.days must be > 0")
	} else if out.Window.Days > 90 {
		res.addWarn("window.days is %d; rollups will mix stale listings with current ones.", out.Window.Days)
	}
	if out.Window.AsOf != "" {
		if _, err := time.Parse(asOfLayout, out.Window.AsOf); err != nil {
			res.addErr("window.as_of must be YYYY-MM-DD (got %q)", out.Window.AsOf)
		}
	}

	switch out.Availability.MalformedLayout {
	case MalformedDrop, MalformedFail:
	default:
		res.addErr("availability.malformed_layout must be %q or %q", MalformedDrop, MalformedFail)
	}

	// ---- llm ----
	switch out.LLM.Provider {
	case ProviderOpenAI:
	case ProviderAzure:
		if strings.TrimSpace(out.LLM.Endpoint) == "" {
			res.addErr("llm.endpoint is required when llm.provider=azure")
		}
		if strings.TrimSpace(out.LLM.APIVersion) == "" {
			res.addErr("llm.api_version is required when llm.provider=azure")
		}
		if strings.TrimSpace(out.LLM.Deployment) == "" {
			res.addErr("llm.deployment is required when llm.provider=azure")
		}
	case ProviderStub:
		res.addWarn("llm.provider is stub; summaries are canned text, not model output.")
	default:
		res.addErr("llm.provider must be openai, azure or stub (got %q)", out.LLM.Provider)
	}
	if out.LLM.TimeoutSeconds < 0 {
		res.addErr("llm.timeout_seconds must be >= 0")
	}
	if out.LLM.RequestsPerMinute < 0 {
		res.addErr("llm.requests_per_minute must be >= 0")
	}

	if out.Audit.Enabled && out.Audit.RetentionDays < 0 {
		res.addErr("audit.retention_days must be >= 0")
	}

	switch out.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		res.addWarn("log.level %q is unknown; falling back to info.", out.Log.Level)
	}

	return out, res
}
