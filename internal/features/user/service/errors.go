package service

const (
	msgUsernameNotUnique = "The username provided is not unique."
	msgInvalidToken      = "The token provided is not valid."
	msgTokenRequired     = "A token is required."
	msgWrongPassword     = "The password provided is incorrect."
	msgNotOwner          = "The token provided does not belong to this user."
)
