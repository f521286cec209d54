package e2e

import (
	"github.com/cucumber/godog"

	"libris/e2e/steps/lending"
	"libris/e2e/steps/members"
)

// RegisterSteps registers all step definitions from the modular packages.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	members.RegisterSteps(ctx, tc)
	lending.RegisterSteps(ctx, tc)
}
