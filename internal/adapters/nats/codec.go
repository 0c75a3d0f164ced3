package natsadapter

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/gisportal/internal/core/domain"
)

// EncodeUsage serialises a usage event as a binary google.protobuf.Struct.
func EncodeUsage(ev *domain.UsageEvent) ([]byte, error) {
	fields := map[string]any{
		"id":         ev.ID.String(),
		"username":   ev.Username,
		"widget":     ev.Widget,
		"action":     ev.Action,
		"created_at": ev.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(ev.Metadata) > 0 {
		fields["metadata"] = ev.Metadata
	}

	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode usage event: %w", err)
	}
	return proto.Marshal(s)
}

// UsageJSON converts an encoded usage event to its JSON form.
func UsageJSON(data []byte) ([]byte, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode usage event: %w", err)
	}
	return protojson.Marshal(&s)
}
