package io

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_Write(t *testing.T) {
	assert := assert.New(t)

	var mirror bytes.Buffer
	con := &Console{Output: &mirror}

	con.Write('H')
	con.WriteString("i, ü!")
	con.Write(-1)

	assert.Equal("Hi, ü!�", con.String())
	assert.Equal("Hi, ü!�", mirror.String())
}

func TestConsole_Input(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}

	_, ok := con.Pop()
	assert.False(ok)

	con.Push("ab")
	con.Push("π")
	assert.Equal(3, con.Pending())

	for _, expect := range "abπ" {
		r, ok := con.Pop()
		assert.True(ok)
		assert.Equal(expect, r)
	}

	_, ok = con.Pop()
	assert.False(ok)
	assert.Equal(0, con.Pending())
}

func TestConsole_Rewind(t *testing.T) {
	assert := assert.New(t)

	con := &Console{}
	con.WriteString("out")
	con.Push("in")

	con.Rewind()

	assert.Equal("", con.String())
	assert.Equal(0, con.Pending())
}
