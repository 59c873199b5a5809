package spotify

import (
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/daos"
	"github.com/pocketbase/pocketbase/models"
	"golang.org/x/oauth2"
)

// TokenCollection is the collection holding one OAuth token record per user.
const TokenCollection = "spotify_tokens"

// TokenRecord returns the stored token record for a user, or ErrNoToken
// if the user never connected Spotify.
func TokenRecord(dao *daos.Dao, userID string) (*models.Record, error) {
	record, err := dao.FindFirstRecordByFilter(
		TokenCollection,
		"user = {:user}",
		dbx.Params{"user": userID},
	)
	if err != nil {
		return nil, ErrNoToken
	}
	return record, nil
}

// LoadToken converts a user's token record into an oauth2.Token.
func LoadToken(dao *daos.Dao, userID string) (*oauth2.Token, error) {
	record, err := TokenRecord(dao, userID)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken:  record.GetString("access_token"),
		RefreshToken: record.GetString("refresh_token"),
		TokenType:    record.GetString("token_type"),
		Expiry:       record.GetDateTime("expires_at").Time(),
	}, nil
}

// SaveToken upserts the token record for a user. Access token, token
// type, scope and expiry are always overwritten; the refresh token is
// overwritten only when the provider supplied one, because refresh
// responses may omit it and the previous value must survive.
func SaveToken(dao *daos.Dao, userID string, token *oauth2.Token) error {
	record, err := TokenRecord(dao, userID)
	if err != nil {
		collection, err := dao.FindCollectionByNameOrId(TokenCollection)
		if err != nil {
			return fmt.Errorf("failed to find %s collection: %w", TokenCollection, err)
		}
		record = models.NewRecord(collection)
		record.Set("user", userID)
	}

	record.Set("access_token", token.AccessToken)
	record.Set("token_type", token.TokenType)
	record.Set("expires_at", token.Expiry)
	if scope, ok := token.Extra("scope").(string); ok && scope != "" {
		record.Set("scope", scope)
	}
	if token.RefreshToken != "" {
		record.Set("refresh_token", token.RefreshToken)
	}

	return dao.SaveRecord(record)
}

// TokenExpired reports whether the stored access token can no longer be
// used. A record with no stored expiry is treated as expired.
func TokenExpired(record *models.Record) bool {
	expiry := record.GetDateTime("expires_at")
	if expiry.IsZero() {
		return true
	}
	return !time.Now().Before(expiry.Time())
}
