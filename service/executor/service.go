package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/structology/conv"

	"github.com/stewardai/steward/extension"
	"github.com/stewardai/steward/model/tool"
	"github.com/stewardai/steward/model/types"
)

// Listener is invoked once a tool call completes, regardless of whether it
// returned an error.  Implementations can log, collect metrics or perform any
// other side-effects they require.  It is a function type rather than an
// interface so callers can pass a plain function literal.
type Listener func(call *tool.Call, input, output interface{})

// StdoutListener serialises the call, input and output into JSON and prints
// them to standard output.  Marshal errors are ignored on purpose - they
// indicate non-serialisable values the caller could not have observed anyway.
func StdoutListener(call *tool.Call, input, output interface{}) {
	if call == nil {
		return
	}
	cc, _ := json.Marshal(call)
	fmt.Println(string(cc))
	if input != nil {
		in, _ := json.Marshal(input)
		fmt.Println(string(in))
	}
	if output != nil {
		out, _ := json.Marshal(output)
		fmt.Println(string(out))
	}
}

// Option is used to customise the executor instance.
type Option func(*service)

// WithListener overrides the listener invoked after every executed call.
// Passing nil disables the callback entirely.
func WithListener(l Listener) Option {
	return func(s *service) {
		s.listener = l
	}
}

// Service represents a tool executor.
type Service interface {
	Execute(ctx context.Context, call *tool.Call) (string, error)
}

// service is the concrete implementation of Service.
type service struct {
	tools     *extension.Tools
	converter *conv.Converter
	listener  Listener
}

// Execute runs the tool call and returns the serialised result.
func (s *service) Execute(ctx context.Context, call *tool.Call) (string, error) {
	toolService, methodName, err := s.resolve(call.Name)
	if err != nil {
		return "", err
	}
	method, err := toolService.Method(methodName)
	if err != nil {
		return "", fmt.Errorf("failed to find method %v for tool %v: %w", methodName, call.Name, err)
	}
	signature := toolService.Methods().Lookup(methodName)
	if signature == nil {
		return "", fmt.Errorf("%w: %v.%v", ErrMethodNotFound, toolService.Name(), methodName)
	}

	input, err := s.typedValue(signature.Input, call.Args)
	if err != nil {
		return "", fmt.Errorf("failed to convert arguments for %v: %w", call.Name, err)
	}
	output, err := s.typedValue(signature.Output, map[string]interface{}{})
	if err != nil {
		return "", err
	}

	if err = method(ctx, input, output); err != nil {
		return "", err
	}
	if s.listener != nil {
		s.listener(call, input, output)
	}
	return renderOutput(output), nil
}

// resolve maps a tool name onto a registered service and method.  Dotted
// names follow the "service.method" convention; a bare name addresses the
// service's sole (first declared) method.
func (s *service) resolve(name string) (types.Service, string, error) {
	serviceName, methodName := name, ""
	if idx := strings.LastIndex(name, "."); idx > 0 {
		serviceName, methodName = name[:idx], name[idx+1:]
	}
	toolService := s.tools.Lookup(serviceName)
	if toolService == nil && methodName != "" {
		// A flat tool name containing dots - try the full name as a service.
		if toolService = s.tools.Lookup(name); toolService != nil {
			methodName = ""
		}
	}
	if toolService == nil {
		return nil, "", fmt.Errorf("%w: %v", ErrToolNotFound, name)
	}
	if methodName == "" {
		methods := toolService.Methods()
		if len(methods) == 0 {
			return nil, "", fmt.Errorf("%w: %v has no methods", ErrMethodNotFound, serviceName)
		}
		methodName = methods[0].Name
	}
	return toolService, methodName, nil
}

// typedValue converts a raw value into a freshly allocated instance of aType.
func (s *service) typedValue(aType reflect.Type, value interface{}) (interface{}, error) {
	if aType == nil {
		return nil, nil
	}
	if aType.Kind() == reflect.Ptr {
		aType = aType.Elem()
	}
	instance := reflect.New(aType).Interface()
	err := s.converter.Convert(value, instance)
	return instance, err
}

// renderOutput serialises a typed output into the tool-result text.
func renderOutput(output interface{}) string {
	if output == nil {
		return ""
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprintf("%v", output)
	}
	text := string(data)
	if text == "{}" || text == "null" {
		return ""
	}
	return text
}

// New creates a new executor service instance backed by the given registry.
func New(tools *extension.Tools, opts ...Option) Service {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	options.AccessUnexported = true

	s := &service{
		tools:     tools,
		converter: conv.NewConverter(options),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}
