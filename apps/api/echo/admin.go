package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tachera/mlango/core/center"
)

type adminApi struct {
	centers  *center.Service
	validate *validator.Validate
}

func registerAdminAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	centers *center.Service,
	validate *validator.Validate,
) {
	api := adminApi{
		centers:  centers,
		validate: validate,
	}

	ag := g.Group("/admin/centers", jwt)
	ag.GET("", api.query, adminMiddleware())
	ag.POST("", api.create, adminMiddleware())
	ag.GET("/flags", api.queryFlags, adminMiddleware())

	// the caller's admin role is re-verified against the user store inside
	// the service; the token alone never authorizes this mutation.
	ag.POST("/toggle-feature", api.toggleFeature)
}

// Handlers

func (api *adminApi) create(ctx echo.Context) error {
	var data center.NewCenter
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCenter")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctr, err := api.centers.Create(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == center.ErrNameExists {
			return echo.NewHTTPError(http.StatusConflict, center.ErrNameExists.Error())
		}
		return errors.Wrap(err, "creating center")
	}
	return ctx.JSON(http.StatusCreated, ctr)
}

func (api *adminApi) query(ctx echo.Context) error {
	centers, err := api.centers.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying centers")
	}
	if centers == nil {
		centers = []center.Center{}
	}
	return ctx.JSON(http.StatusOK, centers)
}

func (api *adminApi) queryFlags(ctx echo.Context) error {
	flags, err := api.centers.QueryAllFlags(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying flags")
	}
	if flags == nil {
		flags = []center.FeatureFlag{}
	}
	return ctx.JSON(http.StatusOK, flags)
}

func (api *adminApi) toggleFeature(ctx echo.Context) error {
	var data ToggleFeatureRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleFeatureRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	err = api.centers.Toggle(
		ctx.Request().Context(),
		claims.Subject,
		data.CenterID,
		center.Feature(data.FeatureName),
		*data.IsEnabled,
	)
	if err != nil {
		switch origErr := errors.Cause(err).(type) {
		case *center.RejectedError:
			return ctx.JSON(http.StatusOK, ToggleFeatureResponse{Error: origErr.Reason})
		default:
			if errors.Cause(err) == center.ErrUnauthorized {
				return errHttpForbidden
			}
			return errors.Wrap(err, "toggling feature")
		}
	}
	return ctx.JSON(http.StatusOK, ToggleFeatureResponse{Success: true})
}
