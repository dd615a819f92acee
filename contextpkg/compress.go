package contextpkg

// compress dispatches to the type-directed compression strategy for
// packageType, falling back to the generic strategy for unrecognized
// types. Every strategy returns a new map carrying a "_compression_note"
// sentinel that callers must treat as a lossy-content marker.
func compress(packageType PackageType, content map[string]any) map[string]any {
	switch packageType {
	case PackageStrategic:
		return compressStrategic(content)
	case PackageTechnical:
		return compressTechnical(content)
	case PackageFrontend:
		return compressFrontend(content)
	case PackageSecurity:
		return compressSecurity(content)
	case PackagePerformance:
		return compressPerformance(content)
	case PackageDatabase:
		return compressDatabase(content)
	default:
		return compressGeneric(content)
	}
}

func compressStrategic(content map[string]any) map[string]any {
	return map[string]any{
		"architecture_overview": truncateString(getString(content, "architecture_overview"), 500),
		"key_decisions":         truncateList(getList(content, "key_decisions"), 3),
		"integration_points":    truncateList(getList(content, "integration_points"), 5),
		"success_criteria":      truncateList(getList(content, "success_criteria"), 3),
		"constraints":           truncateList(getList(content, "constraints"), 3),
		"_compression_note":     "Strategic context compressed - detailed implementation available in technical context",
	}
}

func compressTechnical(content map[string]any) map[string]any {
	return map[string]any{
		"key_components":           truncateList(getList(content, "key_components"), 5),
		"implementation_patterns":  truncateList(getList(content, "implementation_patterns"), 3),
		"dependencies":             truncateList(getList(content, "dependencies"), 10),
		"critical_files":           truncateList(getList(content, "critical_files"), 8),
		"api_endpoints":            truncateList(getList(content, "api_endpoints"), 10),
		"configuration":            compressConfig(getMap(content, "configuration")),
		"_compression_note":        "Technical details compressed - full codebase analysis available",
	}
}

func compressFrontend(content map[string]any) map[string]any {
	return map[string]any{
		"ui_components":     truncateList(getList(content, "ui_components"), 8),
		"styling_approach":  content["styling_approach"],
		"state_management":  content["state_management"],
		"routing_config":    content["routing_config"],
		"key_interactions":  truncateList(getList(content, "key_interactions"), 5),
		"_compression_note": "UI details compressed - component library available",
	}
}

func compressSecurity(content map[string]any) map[string]any {
	return map[string]any{
		"critical_vulnerabilities": truncateList(getList(content, "critical_vulnerabilities"), 5),
		"auth_patterns":            truncateList(getList(content, "auth_patterns"), 3),
		"security_headers":         content["security_headers"],
		"input_validation":         truncateList(getList(content, "input_validation"), 5),
		"mitigation_strategies":    truncateList(getList(content, "mitigation_strategies"), 5),
		"_compression_note":        "Security analysis compressed - full audit available",
	}
}

func compressPerformance(content map[string]any) map[string]any {
	return map[string]any{
		"bottlenecks":                 truncateList(getList(content, "bottlenecks"), 5),
		"performance_metrics":         truncateMapToN(getMap(content, "performance_metrics"), 5),
		"optimization_opportunities":  truncateList(getList(content, "optimization_opportunities"), 5),
		"resource_usage":              content["resource_usage"],
		"_compression_note":           "Performance data compressed - detailed metrics available",
	}
}

func compressDatabase(content map[string]any) map[string]any {
	return map[string]any{
		"key_tables":        truncateList(getList(content, "key_tables"), 10),
		"relationships":     truncateList(getList(content, "relationships"), 8),
		"indexes":           truncateList(getList(content, "indexes"), 5),
		"query_patterns":    truncateList(getList(content, "query_patterns"), 5),
		"migrations":        truncateList(getList(content, "migrations"), 3),
		"_compression_note": "Database schema compressed - full DDL available",
	}
}

// essentialConfigKeys are always kept by compressConfig regardless of length.
var essentialConfigKeys = map[string]bool{
	"host": true, "port": true, "database": true,
	"timeout": true, "max_connections": true, "auth_type": true,
}

// compressConfig keeps named essential keys plus any other key whose
// string form is short enough not to matter for the token budget.
func compressConfig(config map[string]any) map[string]any {
	result := make(map[string]any)
	for k, v := range config {
		if essentialConfigKeys[k] || len(toDisplayString(v)) < 50 {
			result[k] = v
		}
	}
	return result
}

var genericEssentialKeys = []string{"summary", "key_points", "findings", "recommendations", "status"}

func compressGeneric(content map[string]any) map[string]any {
	result := make(map[string]any)
	for _, key := range genericEssentialKeys {
		value, ok := content[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case []any:
			result[key] = truncateList(v, 5)
		case string:
			result[key] = truncateString(v, 500)
		default:
			result[key] = value
		}
	}
	result["_compression_note"] = "Generic compression applied"

	available := make([]string, 0, len(content))
	for k := range content {
		available = append(available, k)
	}
	result["_available_keys"] = available
	return result
}
