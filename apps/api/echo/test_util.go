package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/validator/v10"

	"github.com/tachera/mlango/core"
	"github.com/tachera/mlango/core/center"
	"github.com/tachera/mlango/core/user"
	emailsvc "github.com/tachera/mlango/services/email"
	logsvc "github.com/tachera/mlango/services/logger"
	dummydb "github.com/tachera/mlango/storage/database/dummy"
)

type testEnv struct {
	app       Server
	conf      *core.Config
	usrSvc    *user.Service
	centerSvc *center.Service
	usrRepo   user.Repository
	ctrRepo   center.Repository
}

func testConfig() *core.Config {
	conf := &core.Config{
		TestMode:        true,
		Env:             "TEST",
		AppName:         "Mlango",
		SecretKey:       "59a3d1a0807b4d09a6dee4f8a726c73a",
		FrontendBaseURL: "http://localhost:8080",

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		SignInRateLimit:           5,
		SignInRateWindow:          time.Minute,
	}
	conf.Server.Addr = "localhost:0"
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Server.JWTRefreshExpirationDelta = 4 * time.Hour
	return conf
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := testConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}
	usrRepo := dummydb.NewUserRepository(db)
	ctrRepo := dummydb.NewCenterRepository(db)

	validate, translator := testValidators(t)
	user.InitTokenGenerator(conf)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	centerSvc := center.NewService(ctrRepo, usrSvc, nil /* cache */, logsvc.NopLogger{})

	app := NewServer(&Options{
		Conf:           conf,
		Logger:         logsvc.NopLogger{},
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		CenterSvc:      centerSvc,
		Validate:       validate,
		Translator:     translator,
	})

	return &testEnv{
		app:       app,
		conf:      conf,
		usrSvc:    usrSvc,
		centerSvc: centerSvc,
		usrRepo:   usrRepo,
		ctrRepo:   ctrRepo,
	}
}

func testValidators(t *testing.T) (*validator.Validate, ut.Translator) {
	t.Helper()

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, ok := uni.GetTranslator("en")
	if !ok {
		t.Fatal("en translator not found")
	}
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func (env *testEnv) createUser(t *testing.T, name, uname, email, pwd string, role user.Role, centerID string, isActive bool) user.User {
	t.Helper()

	usr, err := env.usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Password: pwd,
		Role:     role,
		CenterID: centerID,
	})
	if err != nil {
		t.Fatalf("creating user %s: %v", uname, err)
	}
	if !isActive {
		usr.IsActive = false
		if usr, err = env.usrRepo.UpdateUser(context.Background(), usr); err != nil {
			t.Fatalf("deactivating user %s: %v", uname, err)
		}
	}
	return usr
}

func (env *testEnv) createCenter(t *testing.T, name string) center.Center {
	t.Helper()

	ctr, err := env.centerSvc.Create(context.Background(), center.NewCenter{Name: name})
	if err != nil {
		t.Fatalf("creating center %s: %v", name, err)
	}
	return ctr
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	token, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
