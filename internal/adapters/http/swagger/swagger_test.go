package swagger_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	swagger "github.com/lapvn/timecard/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegister(t *testing.T) {
	Convey("Given the documentation routes", t, func() {
		mux := http.NewServeMux()
		swagger.Register(context.Background(), mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		Convey("When fetching /api-docs", func() {
			resp, err := http.Get(ts.URL + "/api-docs")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the ReDoc page should be served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(resp.Header.Get("Content-Type"), ShouldStartWith, "text/html")

				body, err := io.ReadAll(resp.Body)
				So(err, ShouldBeNil)
				So(string(body), ShouldContainSubstring, "redoc")
				So(string(body), ShouldContainSubstring, "/openapi.yaml")
			})
		})

		Convey("When fetching /openapi.yaml", func() {
			resp, err := http.Get(ts.URL + "/openapi.yaml")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the embedded spec should describe the API", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				body, err := io.ReadAll(resp.Body)
				So(err, ShouldBeNil)
				spec := string(body)
				So(strings.HasPrefix(spec, "openapi:"), ShouldBeTrue)
				for _, path := range []string{"/events", "/sync", "/import", "/records"} {
					So(spec, ShouldContainSubstring, path)
				}
			})
		})

		Convey("When registering with a nil mux", func() {
			Convey("Then it should panic loudly", func() {
				So(func() { swagger.Register(context.Background(), nil) }, ShouldPanic)
			})
		})
	})
}
