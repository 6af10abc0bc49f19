package settings

import "strconv"

// FieldType describes the form control type for a setting.
type FieldType string

const (
	FieldTypeBool   FieldType = "bool"
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
)

// FieldMeta captures descriptive information about a settings field.
type FieldMeta struct {
	Key         string    `json:"key"`
	Type        FieldType `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`

	get func(Settings) string
	set func(*Settings, string, int, bool)
}

func (f FieldMeta) setInt(s *Settings, n int)     { f.set(s, "", n, false) }
func (f FieldMeta) setBool(s *Settings, b bool)   { f.set(s, "", 0, b) }
func (f FieldMeta) setText(s *Settings, v string) { f.set(s, v, 0, false) }

// Value renders the field of s as text.
func (f FieldMeta) Value(s Settings) string {
	return f.get(s)
}

var fields = []FieldMeta{
	{
		Key:         "networkRange",
		Type:        FieldTypeText,
		Title:       "Network Range",
		Description: "CIDR, dash range or single address swept by a network scan.",
		get:         func(s Settings) string { return s.NetworkRange },
		set:         func(s *Settings, v string, _ int, _ bool) { s.NetworkRange = v },
	},
	{
		Key:         "scanInterval",
		Type:        FieldTypeNumber,
		Title:       "Scan Interval",
		Description: "Seconds between automatic scans (minimum 10).",
		get:         func(s Settings) string { return strconv.Itoa(s.ScanInterval) },
		set:         func(s *Settings, _ string, n int, _ bool) { s.ScanInterval = n },
	},
	{
		Key:         "snmpCommunity",
		Type:        FieldTypeText,
		Title:       "SNMP Community",
		Description: "Community string used for SNMP v1/v2c queries.",
		get:         func(s Settings) string { return s.SNMPCommunity },
		set:         func(s *Settings, v string, _ int, _ bool) { s.SNMPCommunity = v },
	},
	{
		Key:         "snmpVersion",
		Type:        FieldTypeNumber,
		Title:       "SNMP Version",
		Description: "1 or 2 (v2c).",
		get:         func(s Settings) string { return strconv.Itoa(s.SNMPVersion) },
		set:         func(s *Settings, _ string, n int, _ bool) { s.SNMPVersion = n },
	},
	{
		Key:         "autoScan",
		Type:        FieldTypeBool,
		Title:       "Auto Scan",
		Description: "Rescan the network range every Scan Interval.",
		get:         func(s Settings) string { return strconv.FormatBool(s.AutoScan) },
		set:         func(s *Settings, _ string, _ int, b bool) { s.AutoScan = b },
	},
}

// Fields returns metadata for every setting in display order.
func Fields() []FieldMeta {
	out := make([]FieldMeta, len(fields))
	copy(out, fields)
	return out
}

// Lookup finds a field by its JSON key.
func Lookup(key string) (FieldMeta, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldMeta{}, false
}
