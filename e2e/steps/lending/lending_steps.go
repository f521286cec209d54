// Package lending holds catalog and lending step definitions.
package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps need.
type TestContext interface {
	PostAsAdmin(path string, body any) error
	PostAsMember(path string, body any) error
	GetAsAdmin(path string) error
	GetAsMember(path string) error
	GET(path string) error
	LastStatus() int
	Field(name string) (any, error)
	SetBookID(id int64)
	BookID() int64
	SetCopyID(id int64)
	CopyID() int64
}

// RegisterSteps registers catalog and lending step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &lendingSteps{tc: tc}

	ctx.Step(`^an admin creates a book "([^"]*)" with (\d+) copies$`, steps.createBook)
	ctx.Step(`^an admin registers another copy of the book$`, steps.registerCopy)
	ctx.Step(`^I view the book$`, steps.viewBook)
	ctx.Step(`^I borrow the copy due in (\d+) days$`, steps.borrow)
	ctx.Step(`^I return the copy$`, steps.returnCopy)
	ctx.Step(`^an admin disables the copy$`, steps.disable)
	ctx.Step(`^an admin reads the copy's loan history$`, steps.history)
	ctx.Step(`^the copy status is "([^"]*)"$`, steps.assertCopyStatus)
	ctx.Step(`^the loan history has (\d+) records?$`, steps.assertHistoryLen)
}

type lendingSteps struct {
	tc TestContext
}

func (s *lendingSteps) createBook(ctx context.Context, title string, copies int) error {
	if err := s.tc.PostAsAdmin("/books", map[string]any{
		"title":   title,
		"summary": "e2e scenario book",
		"copies":  copies,
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("expected 201 creating book, got %d", s.tc.LastStatus())
	}
	id, err := s.tc.Field("id")
	if err != nil {
		return err
	}
	s.tc.SetBookID(int64(id.(float64)))
	return nil
}

func (s *lendingSteps) registerCopy(ctx context.Context) error {
	if err := s.tc.PostAsAdmin("/book_instances", map[string]any{
		"book": s.tc.BookID(),
	}); err != nil {
		return err
	}
	if s.tc.LastStatus() != 201 {
		return fmt.Errorf("expected 201 registering copy, got %d", s.tc.LastStatus())
	}
	id, err := s.tc.Field("id")
	if err != nil {
		return err
	}
	s.tc.SetCopyID(int64(id.(float64)))
	return nil
}

func (s *lendingSteps) viewBook(ctx context.Context) error {
	return s.tc.GET(fmt.Sprintf("/books/%d", s.tc.BookID()))
}

func (s *lendingSteps) borrow(ctx context.Context, days int) error {
	due := time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
	return s.tc.PostAsMember(
		fmt.Sprintf("/book_instances/%d/borrow", s.tc.CopyID()),
		map[string]any{"return_date": due},
	)
}

func (s *lendingSteps) returnCopy(ctx context.Context) error {
	return s.tc.GetAsMember(fmt.Sprintf("/book_instances/%d/return_book", s.tc.CopyID()))
}

func (s *lendingSteps) disable(ctx context.Context) error {
	return s.tc.GetAsAdmin(fmt.Sprintf("/book_instances/%d/disable", s.tc.CopyID()))
}

func (s *lendingSteps) history(ctx context.Context) error {
	return s.tc.GetAsAdmin(fmt.Sprintf("/book_instances/%d/record", s.tc.CopyID()))
}

func (s *lendingSteps) assertCopyStatus(ctx context.Context, want string) error {
	status, err := s.tc.Field("status")
	if err != nil {
		return err
	}
	if status != want {
		return fmt.Errorf("expected copy status %q, got %v", want, status)
	}
	return nil
}

func (s *lendingSteps) assertHistoryLen(ctx context.Context, want int) error {
	records, err := s.tc.Field("records")
	if err != nil {
		return err
	}
	list, ok := records.([]any)
	if !ok {
		return fmt.Errorf("records is not a list: %v", records)
	}
	if len(list) != want {
		return fmt.Errorf("expected %d records, got %d", want, len(list))
	}
	return nil
}
