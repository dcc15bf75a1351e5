package mapper

import (
	"encoding/json"
	"fmt"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/model"

	"gorm.io/datatypes"
)

type ChatLogMapper struct{}

func NewChatLogMapper() *ChatLogMapper {
	return &ChatLogMapper{}
}

func (m *ChatLogMapper) ToEntity(c *model.ChatLog) (*entity.ChatLog, error) {
	if c == nil {
		return nil, nil
	}

	var meta map[string]interface{}
	if len(c.Metadata) > 0 {
		if err := json.Unmarshal(c.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("chat log %s: decode metadata: %w", c.Id, err)
		}
	}

	return &entity.ChatLog{
		Id:        c.Id,
		UserId:    c.UserId,
		SessionId: c.SessionId,
		Role:      c.Role,
		Content:   c.Content,
		Intent:    c.Intent,
		Metadata:  meta,
		CreatedAt: c.CreatedAt,
	}, nil
}

func (m *ChatLogMapper) ToModel(c *entity.ChatLog) (*model.ChatLog, error) {
	if c == nil {
		return nil, nil
	}

	var meta datatypes.JSON
	if c.Metadata != nil {
		b, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, fmt.Errorf("chat log %s: encode metadata: %w", c.Id, err)
		}
		meta = datatypes.JSON(b)
	}

	return &model.ChatLog{
		Id:        c.Id,
		UserId:    c.UserId,
		SessionId: c.SessionId,
		Role:      c.Role,
		Content:   c.Content,
		Intent:    c.Intent,
		Metadata:  meta,
		CreatedAt: c.CreatedAt,
	}, nil
}

func (m *ChatLogMapper) ToEntities(logs []*model.ChatLog) ([]*entity.ChatLog, error) {
	entities := make([]*entity.ChatLog, len(logs))
	for i, c := range logs {
		e, err := m.ToEntity(c)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
