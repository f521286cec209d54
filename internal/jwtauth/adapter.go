package jwtauth

import (
	"libris/internal/platform/middleware"
)

// MiddlewareAdapter bridges the token service to the middleware's validator
// interface.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	memberID, err := claims.ParsedMemberID()
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{
		MemberID: memberID,
		Username: claims.Username,
		Admin:    claims.Admin,
	}, nil
}
