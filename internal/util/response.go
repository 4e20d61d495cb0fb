package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

// KindError carries a machine-readable failure kind next to the message.
func KindError(kind, message string) Envelope {
	return Envelope{"error": message, "kind": kind}
}

func Data(key string, value any) Envelope {
	return Envelope{key: value}
}
