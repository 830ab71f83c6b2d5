package schema

import (
	"fmt"
	"strings"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

const discordCDN = "https://cdn.discordapp.com"

// ParseRestored parses a message fetched back from Discord. Sent messages
// carry the webhook identity in an "author" object and action keys in
// component custom ids; both are mapped onto the editor shape before the
// regular parse runs.
func ParseRestored(data []byte, gen *ids.Generator) (*models.Message, error) {
	v, err := decode(data)
	if err != nil {
		return nil, err
	}
	return ParseRestoredValue(v, gen)
}

// ParseRestoredValue is ParseRestored for an already decoded value.
func ParseRestoredValue(v any, gen *ids.Generator) (*models.Message, error) {
	o, ok := v.(object)
	if !ok {
		return nil, invalid("", "expected an object")
	}
	if author, ok := o["author"].(object); ok {
		if _, set := o["username"]; !set {
			o["username"] = str(author, "username")
		}
		if _, set := o["avatar_url"]; !set {
			o["avatar_url"] = avatarURL(author)
		}
	}
	return ParseValue(o, gen)
}

func avatarURL(author object) string {
	id := keyString(author["id"])
	hash := str(author, "avatar")
	if id == "" || hash == "" {
		return ""
	}
	ext := "png"
	if strings.HasPrefix(hash, "a_") {
		ext = "gif"
	}
	return fmt.Sprintf("%s/avatars/%s/%s.%s", discordCDN, id, hash, ext)
}
