package getsafe

func String(payload map[string]any, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Strings(payload map[string]any, key string) []string {
	v, ok := payload[key]
	if !ok {
		return nil
	}

	if ss, ok := v.([]string); ok {
		return ss
	}

	raw, ok := v.([]any)
	if !ok {
		return nil
	}

	ss := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			ss = append(ss, s)
		}
	}
	return ss
}

func Metadata(payload map[string]any, key string) map[string]any {
	if v, ok := payload[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}
