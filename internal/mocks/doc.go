// Package mocks contains testify mocks for interfaces consumed across the server.
package mocks

import "github.com/stretchr/testify/mock"

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

func register(m *mock.Mock, t testingT) {
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
}

func errorAt(ret mock.Arguments, i int) error {
	if ret.Get(i) == nil {
		return nil
	}
	return ret.Error(i)
}
