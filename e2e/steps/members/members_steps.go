// Package members holds member account step definitions.
package members

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	GetAsMember(path string) error
	LastStatus() int
	Field(name string) (any, error)
	ErrorCode() (string, error)
	SetMemberToken(token string)
}

// RegisterSteps registers member-related step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &memberSteps{tc: tc}

	ctx.Step(`^I register a member "([^"]*)" with password "([^"]*)"$`, steps.register)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.login)
	ctx.Step(`^I request my profile$`, steps.profile)
	ctx.Step(`^I request my profile without a token$`, steps.profileAnonymous)
	ctx.Step(`^the response status is (\d+)$`, steps.assertStatus)
	ctx.Step(`^the error code is "([^"]*)"$`, steps.assertErrorCode)
	ctx.Step(`^the response field "([^"]*)" is "([^"]*)"$`, steps.assertField)
}

type memberSteps struct {
	tc TestContext
}

func (s *memberSteps) register(ctx context.Context, username, password string) error {
	return s.tc.POST("/members", map[string]any{
		"username": username,
		"password": password,
	})
}

func (s *memberSteps) login(ctx context.Context, username, password string) error {
	if err := s.tc.POST("/members/login", map[string]any{
		"username": username,
		"password": password,
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 200 {
		return nil
	}
	token, err := s.tc.Field("access_token")
	if err != nil {
		return err
	}
	s.tc.SetMemberToken(token.(string))
	return nil
}

func (s *memberSteps) profile(ctx context.Context) error {
	return s.tc.GetAsMember("/members/profile")
}

func (s *memberSteps) profileAnonymous(ctx context.Context) error {
	return s.tc.GET("/members/profile")
}

func (s *memberSteps) assertStatus(ctx context.Context, want int) error {
	if s.tc.LastStatus() != want {
		return fmt.Errorf("expected status %d, got %d", want, s.tc.LastStatus())
	}
	return nil
}

func (s *memberSteps) assertErrorCode(ctx context.Context, want string) error {
	code, err := s.tc.ErrorCode()
	if err != nil {
		return err
	}
	if code != want {
		return fmt.Errorf("expected error code %q, got %q", want, code)
	}
	return nil
}

func (s *memberSteps) assertField(ctx context.Context, field, want string) error {
	v, err := s.tc.Field(field)
	if err != nil {
		return err
	}
	if fmt.Sprintf("%v", v) != want {
		return fmt.Errorf("expected %s=%q, got %v", field, want, v)
	}
	return nil
}
