package mapper

import (
	"user-account-service/internal/common/validation"
	"user-account-service/internal/features/user/models"
)

// ToUserGetDTO maps User model to the public DTO. The password is dropped.
func ToUserGetDTO(user *models.User) *models.UserGetDTO {
	return &models.UserGetDTO{
		ID:       user.ID,
		Username: user.Username,
		Token:    user.Token,
		Status:   user.Status,
	}
}

func ToUserGetDTOs(users []*models.User) []*models.UserGetDTO {
	out := make([]*models.UserGetDTO, 0, len(users))
	for _, u := range users {
		out = append(out, ToUserGetDTO(u))
	}
	return out
}

func ToCredentials(dto *models.UserPostDTO) models.Credentials {
	return models.Credentials{
		Username: dto.Username,
		Password: dto.Password,
	}
}

// ToUserPatch converts an update body into a patch. An empty birthday is
// turned into a clear request; anything else must be a YYYY-MM-DD date.
func ToUserPatch(dto *models.UserPutDTO) (models.UserPatch, error) {
	patch := models.UserPatch{Username: dto.Username}

	if dto.Birthday == nil {
		return patch, nil
	}
	if *dto.Birthday == "" {
		patch.ClearBirthday = true
		return patch, nil
	}

	birthday, err := validation.ParseBirthday(*dto.Birthday)
	if err != nil {
		return models.UserPatch{}, err
	}
	patch.Birthday = &birthday
	return patch, nil
}
