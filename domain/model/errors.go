package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProviderNotFound    = errors.New("provider not found")
	ErrProviderInvalid     = errors.New("provider invalid")
	ErrControllerNotFound  = errors.New("controller not found")
	ErrControllerInvalid   = errors.New("controller invalid")
	ErrWorkerGroupNotFound = errors.New("worker group not found")
	ErrWorkerGroupInvalid  = errors.New("worker group invalid")
	ErrInstanceNotFound    = errors.New("instance not found")
	ErrInstanceInvalid     = errors.New("instance invalid")
	ErrInstanceOwner       = errors.New("instance must reference exactly one of controller or worker group")

	ErrControllerNotRunning = errors.New("controller has no running instance")
	ErrInUse                = errors.New("resource is still referenced")
	ErrAlreadyExists        = errors.New("resource already exists")
)

// AdapterError reports a failed provider adapter call.
type AdapterError struct {
	Op  string // status, start, resume, stop, terminate
	Err error
}

func (e *AdapterError) Error() string { return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err) }
func (e *AdapterError) Unwrap() error { return e.Err }

// InstanceError ties an error to a single instance.
type InstanceError struct {
	Instance *Instance
	Err      error
}

func (e InstanceError) Error() string {
	id := ""
	if e.Instance != nil {
		id = e.Instance.ProviderInstanceID
	}
	return fmt.Sprintf("%s: %v", id, e.Err)
}

// BatchError aggregates per-instance failures of a best-effort batch operation.
type BatchError struct {
	Op       string
	Failures []InstanceError
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%s failed for %d instance(s): %s", e.Op, len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes every per-instance cause to errors.Is/As.
func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

// FailedInstances returns the instances listed in the batch failures.
func (e *BatchError) FailedInstances() []*Instance {
	out := make([]*Instance, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Instance)
	}
	return out
}

// DeployError reports a failed remote configuration of one instance.
type DeployError struct {
	InstanceID string
	Host       string
	Err        error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy %s (%s) failed: %v", e.InstanceID, e.Host, e.Err)
}
func (e *DeployError) Unwrap() error { return e.Err }

// DeployBatchError aggregates the failures collected at the deployment barrier.
type DeployBatchError struct {
	Failures []*DeployError
	Total    int
}

func (e *DeployBatchError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d of %d deployment(s) failed: %s", len(e.Failures), e.Total, strings.Join(msgs, "; "))
}

func (e *DeployBatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f)
	}
	return out
}
