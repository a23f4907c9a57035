package instance

import (
	"context"

	"github.com/yaegashi/clusterops/domain/model"
)

// DeleteInput identifies the record to remove.
type DeleteInput struct {
	ID string `json:"id"`
}

// DeleteOutput is empty because delete has no return entity.
type DeleteOutput struct{}

// Delete removes one instance record. The provider resource is not touched.
func (u *UseCase) Delete(ctx context.Context, in *DeleteInput) (*DeleteOutput, error) {
	if in == nil || in.ID == "" {
		return nil, model.ErrInstanceInvalid
	}
	if err := u.Repos.Instance.Delete(ctx, in.ID); err != nil {
		return nil, err
	}
	u.logger().Info(ctx, "instance record deleted", "instance", in.ID)
	return &DeleteOutput{}, nil
}
