package models

import "github.com/disgoorg/snowflake/v2"

// Snowflake is a Discord id (roles, channels, guilds, emojis, messages).
type Snowflake = snowflake.ID

// ParseSnowflake parses the decimal string form of a Discord id.
func ParseSnowflake(s string) (Snowflake, error) {
	return snowflake.Parse(s)
}
