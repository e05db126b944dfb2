package protocol

import (
	"encoding/json"
	"fmt"
)

// Encode сериализует сообщение в UTF-8 JSON для data-канала.
func Encode(msg any) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol encode: %w", err)
	}
	return b, nil
}

// Decode разбирает входящий payload по полю type.
// Возвращает (kind, nil, nil) для неизвестного типа: вызывающий молча
// пропускает такое сообщение. Ошибка — только битый JSON / битый payload;
// она логируется и никогда не роняет сессию.
func Decode(data []byte) (Kind, any, error) {
	var hdr Header
	if err := json.Unmarshal(data, &hdr); err != nil {
		return "", nil, fmt.Errorf("protocol decode header: %w", err)
	}

	unmarshal := func(dst any) (Kind, any, error) {
		if err := json.Unmarshal(data, dst); err != nil {
			return hdr.Type, nil, fmt.Errorf("protocol decode %s: %w", hdr.Type, err)
		}
		return hdr.Type, dst, nil
	}

	switch hdr.Type {
	case KindCodeUpdate:
		return unmarshal(&CodeUpdate{})
	case KindLanguageChange:
		return unmarshal(&LanguageChange{})
	case KindCursorPosition:
		return unmarshal(&CursorPosition{})
	case KindTyping:
		return unmarshal(&Typing{})
	case KindUserJoined:
		return unmarshal(&UserJoined{})
	case KindChat:
		return unmarshal(&Chat{})
	default:
		return hdr.Type, nil, nil
	}
}
