package query

import (
	"context"
	"encoding/json"

	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TestDef is the definition of a QueryServer endpoint to be tested.
// R is the request type. S is the response type.
type TestDef[R any, S any] struct {
	// QueryName is the name of the query being tested.
	QueryName string
	// Query is the query function to invoke.
	Query func(goCtx context.Context, req *R) (*S, error)
	// PostCheck runs followup assertions on a successful response.
	PostCheck func(expected, actual *S)
}

// TestCase is a test case for a QueryServer endpoint.
type TestCase[R any, S any] struct {
	Name string
	// Setup does any needed state setup. It runs against a cached context,
	// so nothing carries over between test cases.
	Setup func()
	Req   *R
	// ExpectedResp is compared to the actual response through its JSON encoding,
	// so amounts compare by value.
	ExpectedResp *S
	// ExpectedCode is the grpc status code of the error. Ignored when no error is expected.
	ExpectedCode codes.Code
	// ExpectedErrSubstrs are the strings expected in the returned error.
	// If empty, the error is expected to be nil.
	ExpectedErrSubstrs []string
}

type TestSuiter interface {
	Context() sdk.Context
	SetContext(ctx sdk.Context)
	Require() *require.Assertions
	Assert() *assert.Assertions
}

// RunTestCase runs a unit test on a QueryServer endpoint against a cached context.
func RunTestCase[R any, S any](s TestSuiter, td TestDef[R, S], tc TestCase[R, S]) {
	origCtx := s.Context()
	defer func() {
		s.SetContext(origCtx)
	}()
	ctx, _ := s.Context().CacheContext()
	s.SetContext(ctx)

	if tc.Setup != nil {
		tc.Setup()
	}

	var resp *S
	var err error
	s.Require().NotPanics(func() {
		resp, err = td.Query(s.Context(), tc.Req)
	}, td.QueryName)

	if len(tc.ExpectedErrSubstrs) > 0 {
		s.Require().Errorf(err, "%s error", td.QueryName)
		for _, substr := range tc.ExpectedErrSubstrs {
			s.Assert().Containsf(err.Error(), substr, "%s error missing expected substring", td.QueryName)
		}
		if tc.ExpectedCode != codes.OK {
			s.Assert().Equalf(tc.ExpectedCode, status.Code(err), "%s status code", td.QueryName)
		}
		return
	}

	s.Require().NoErrorf(err, "%s error", td.QueryName)
	if tc.ExpectedResp != nil {
		s.Require().NotNilf(resp, "%s response", td.QueryName)
		expected, err := json.Marshal(tc.ExpectedResp)
		s.Require().NoError(err, "marshal expected response")
		actual, err := json.Marshal(resp)
		s.Require().NoError(err, "marshal actual response")
		s.Assert().JSONEqf(string(expected), string(actual), "%s response", td.QueryName)
	}
	if td.PostCheck != nil && tc.ExpectedResp != nil && resp != nil {
		td.PostCheck(tc.ExpectedResp, resp)
	}
}
