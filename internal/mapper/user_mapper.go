package mapper

import (
	"encoding/json"
	"fmt"

	"commerce-assistant/internal/entity"
	"commerce-assistant/internal/model"

	"gorm.io/datatypes"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

// ToEntity fails on a tags or preferences column that is not valid JSON
// rather than returning the user without them.
func (m *UserMapper) ToEntity(u *model.User) (*entity.User, error) {
	if u == nil {
		return nil, nil
	}

	var tags []string
	if len(u.Tags) > 0 {
		if err := json.Unmarshal(u.Tags, &tags); err != nil {
			return nil, fmt.Errorf("user %s: decode tags: %w", u.Id, err)
		}
	}

	var prefs entity.CustomerPreferences
	if len(u.Preferences) > 0 {
		if err := json.Unmarshal(u.Preferences, &prefs); err != nil {
			return nil, fmt.Errorf("user %s: decode preferences: %w", u.Id, err)
		}
	}

	return &entity.User{
		Id:           u.Id,
		Email:        u.Email,
		FullName:     u.FullName,
		Phone:        u.Phone,
		Role:         entity.UserRole(u.Role),
		CustomerType: entity.CustomerType(u.CustomerType),
		Tags:         tags,
		Preferences:  prefs,
		Notes:        u.Notes,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func (m *UserMapper) ToModel(u *entity.User) (*model.User, error) {
	if u == nil {
		return nil, nil
	}

	tags, err := json.Marshal(u.Tags)
	if err != nil {
		return nil, fmt.Errorf("user %s: encode tags: %w", u.Id, err)
	}
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return nil, fmt.Errorf("user %s: encode preferences: %w", u.Id, err)
	}

	return &model.User{
		Id:           u.Id,
		Email:        u.Email,
		FullName:     u.FullName,
		Phone:        u.Phone,
		Role:         string(u.Role),
		CustomerType: string(u.CustomerType),
		Tags:         datatypes.JSON(tags),
		Preferences:  datatypes.JSON(prefs),
		Notes:        u.Notes,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}, nil
}

func (m *UserMapper) ToEntities(users []*model.User) ([]*entity.User, error) {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		e, err := m.ToEntity(u)
		if err != nil {
			return nil, err
		}
		entities[i] = e
	}
	return entities, nil
}
