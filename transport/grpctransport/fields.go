package grpctransport

import (
	"github.com/dogmatiq/psikit/dispatch"
	"google.golang.org/protobuf/types/known/structpb"
)

// stringField returns the string value of the named field of s. A missing
// field is treated as an empty string.
func stringField(s *structpb.Struct, name string) (string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return "", nil
	}

	x, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", dispatch.MalformedRequestError{Reason: name + " must be a string"}
	}

	return x.StringValue, nil
}

// stringListField returns the values of the named list field of s.
func stringListField(s *structpb.Struct, name string) ([]string, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return nil, dispatch.MalformedRequestError{Reason: name + " must be present"}
	}

	list, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, dispatch.MalformedRequestError{Reason: name + " must be a list"}
	}

	values := list.ListValue.GetValues()
	out := make([]string, 0, len(values))

	for _, e := range values {
		x, ok := e.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, dispatch.MalformedRequestError{Reason: name + " must contain only strings"}
		}
		out = append(out, x.StringValue)
	}

	return out, nil
}

func stringListValue(values []string) *structpb.Value {
	list := &structpb.ListValue{
		Values: make([]*structpb.Value, 0, len(values)),
	}

	for _, v := range values {
		list.Values = append(list.Values, structpb.NewStringValue(v))
	}

	return structpb.NewListValue(list)
}
