package naming

import (
	"fmt"
	"strings"

	utilvalidation "k8s.io/apimachinery/pkg/util/validation"
)

// Entity names end up as server hostnames and labels, so they follow the
// DNS-1123 label rules with room left for the instance suffix.
const (
	providerNameMaxLength    = 32
	controllerNameMaxLength  = 40
	workerGroupNameMaxLength = 40
)

func validateDNS1123Label(name string, maximum int, labelKind string) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", labelKind)
	}
	if len(name) > maximum {
		return fmt.Errorf("%s name exceeds %d characters", labelKind, maximum)
	}
	if errs := utilvalidation.IsDNS1123Label(name); len(errs) > 0 {
		return fmt.Errorf("invalid %s name: %s", labelKind, strings.Join(errs, ", "))
	}
	return nil
}

func ValidateProviderName(name string) error {
	return validateDNS1123Label(name, providerNameMaxLength, "provider")
}

func ValidateControllerName(name string) error {
	return validateDNS1123Label(name, controllerNameMaxLength, "controller")
}

func ValidateWorkerGroupName(name string) error {
	return validateDNS1123Label(name, workerGroupNameMaxLength, "worker group")
}
