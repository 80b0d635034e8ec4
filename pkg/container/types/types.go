// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"fmt"
	"strings"
)

type T uint8

const (
	// any family
	T_any T = 0

	// bool family
	T_bool T = 10

	// numeric/integer family
	T_int32 T = 22
	T_int64 T = 23

	// numeric/float family
	T_float32 T = 30
	T_float64 T = 31

	// string family
	T_char    T = 60
	T_varchar T = 61
	T_text    T = 71
)

// Kind is the closed set of column families a split predicate can be
// compiled for. Everything outside of it is KindUnsupported.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindStringLike
	KindInteger
	KindLongInteger
)

var allTypes = []T{T_bool, T_int32, T_int64, T_float32, T_float64, T_char, T_varchar, T_text}

type Type struct {
	Oid T

	Size int32 // e.g. int32.Size = 4, varchar.Size = -1
	// Width means max Display width for char and varchar
	Width int32
}

func New(oid T, width int32) Type {
	return Type{
		Oid:   oid,
		Width: width,
		Size:  int32(oid.TypeLen()),
	}
}

func (t T) ToType() Type {
	return New(t, 0)
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_float32:
		return "FLOAT"
	case T_float64:
		return "DOUBLE"
	case T_char:
		return "CHAR"
	case T_varchar:
		return "VARCHAR"
	case T_text:
		return "TEXT"
	}
	return fmt.Sprintf("unexpected type: %d", t)
}

// TypeLen returns type's length whose type oid is T
func (t T) TypeLen() int {
	switch t {
	case T_any:
		return 0
	case T_bool:
		return 1
	case T_int32, T_float32:
		return 4
	case T_int64, T_float64:
		return 8
	case T_char, T_varchar, T_text:
		return -1
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (t T) IsInteger() bool {
	return t == T_int32 || t == T_int64
}

func (t T) IsFloat() bool {
	return t == T_float32 || t == T_float64
}

func (t T) IsStringLike() bool {
	return t == T_char || t == T_varchar || t == T_text
}

// Kind maps the type onto the split predicate families.
func (t T) Kind() Kind {
	switch {
	case t.IsStringLike():
		return KindStringLike
	case t == T_int32:
		return KindInteger
	case t == T_int64:
		return KindLongInteger
	}
	return KindUnsupported
}

func (t Type) String() string {
	return t.Oid.String()
}

func (t Type) Eq(b Type) bool {
	return t.Oid == b.Oid && t.Size == b.Size && t.Width == b.Width
}

func (t Type) IsVarlen() bool {
	return t.Oid.TypeLen() < 0
}

func (k Kind) String() string {
	switch k {
	case KindStringLike:
		return "string"
	case KindInteger:
		return "integer"
	case KindLongInteger:
		return "long"
	}
	return "unsupported"
}

// ParseT resolves a type name as printed by T.String, case-insensitive.
func ParseT(name string) (T, bool) {
	for _, t := range allTypes {
		if strings.EqualFold(t.String(), name) {
			return t, true
		}
	}
	return T_any, false
}
