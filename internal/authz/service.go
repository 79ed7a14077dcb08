package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	adminSubjectFmt = "admin:%d"
	rolePrefix      = "role:"
	// roleRegistry 角色登记节点；无策略的角色也挂在它下面，保证可被列出
	roleRegistry = "role:__registry__"
)

// 店铺后台预置角色
const (
	RoleReadonlyAuditor = "readonly_auditor"
	RoleMerchandiser    = "merchandiser"
	RoleFulfillment     = "fulfillment"
)

var (
	ErrUnavailable   = errors.New("authz service unavailable")
	ErrRoleRequired  = errors.New("role is required")
	ErrReservedRole  = errors.New("reserved role is not allowed")
	ErrBuiltinRole   = errors.New("builtin role cannot be deleted")
	ErrActionMissing = errors.New("action is required")
	ErrAdminRequired = errors.New("admin id is required")
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 后台接口授权策略，Object 为去掉 /api/v1 前缀的路由模板
type Policy struct {
	Object string `json:"object"`
	Action string `json:"action"`
}

type builtinRole struct {
	name     string
	inherits []string
	policies []Policy
}

// builtinRoles 店铺后台预置角色矩阵：只读审计可浏览全部后台，商品运营维护目录与价格，履约处理订单状态
var builtinRoles = []builtinRole{
	{
		name:     RoleReadonlyAuditor,
		policies: []Policy{{Object: "/admin/*", Action: "GET"}},
	},
	{
		name:     RoleMerchandiser,
		inherits: []string{RoleReadonlyAuditor},
		policies: []Policy{
			{Object: "/admin/products", Action: "POST"},
			{Object: "/admin/products/:id/variants", Action: "POST"},
			{Object: "/admin/variants/:id/price", Action: "PATCH"},
		},
	},
	{
		name:     RoleFulfillment,
		inherits: []string{RoleReadonlyAuditor},
		policies: []Policy{
			{Object: "/admin/orders/:id/status", Action: "PATCH"},
		},
	},
}

// Service 后台 RBAC：管理员 -> 角色 -> (路由模板, 方法)
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 加载 casbin_rule 表中的策略，并补齐预置角色
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter failed: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model failed: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer failed: %w", err)
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy failed: %w", err)
	}

	s := &Service{enforcer: enforcer}
	if err := s.seedBuiltinRoles(); err != nil {
		return nil, err
	}
	return s, nil
}

// seedBuiltinRoles 幂等写入预置角色、继承关系与策略
func (s *Service) seedBuiltinRoles() error {
	for _, role := range builtinRoles {
		subject := rolePrefix + role.name
		if err := s.register(subject); err != nil {
			return err
		}
		for _, parent := range role.inherits {
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, rolePrefix+parent); err != nil {
				return fmt.Errorf("link builtin role %s failed: %w", role.name, err)
			}
		}
		for _, policy := range role.policies {
			if _, err := s.enforcer.AddPolicy(subject, NormalizeObject(policy.Object), NormalizeAction(policy.Action)); err != nil {
				return fmt.Errorf("seed builtin policy for %s failed: %w", role.name, err)
			}
		}
	}
	return nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// register 把角色挂到登记节点下
func (s *Service) register(subject string) error {
	exists, err := s.enforcer.HasNamedGroupingPolicy("g", subject, roleRegistry)
	if err != nil {
		return fmt.Errorf("check role failed: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", subject, roleRegistry); err != nil {
		return fmt.Errorf("create role failed: %w", err)
	}
	return nil
}

// EnforceAdmin 判定管理员能否以 method 访问 path（路由模板或实际路径均可）
func (s *Service) EnforceAdmin(adminID uint, path, method string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(SubjectForAdmin(adminID), NormalizeObject(path), NormalizeAction(method))
}

// ListRoles 列出全部角色名（不含前缀）
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 1, roleRegistry)
	if err != nil {
		return nil, fmt.Errorf("list roles failed: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		roles = append(roles, strings.TrimPrefix(rule[0], rolePrefix))
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色授予接口权限，角色不存在时自动创建
func (s *Service) GrantRolePolicy(role, object, action string) error {
	if err := s.ready(); err != nil {
		return err
	}
	subject, err := roleSubject(role)
	if err != nil {
		return err
	}
	act := NormalizeAction(action)
	if act == "" {
		return ErrActionMissing
	}
	if err := s.register(subject); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(subject, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("grant policy failed: %w", err)
	}
	return nil
}

// DeleteRole 删除自定义角色及其策略与成员关系；预置角色不可删除
func (s *Service) DeleteRole(role string) error {
	if err := s.ready(); err != nil {
		return err
	}
	subject, err := roleSubject(role)
	if err != nil {
		return err
	}
	if IsBuiltinRole(role) {
		return ErrBuiltinRole
	}
	if _, err := s.enforcer.RemoveFilteredPolicy(0, subject); err != nil {
		return fmt.Errorf("remove role policy failed: %w", err)
	}
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, subject); err != nil {
		return fmt.Errorf("remove role link failed: %w", err)
	}
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 1, subject); err != nil {
		return fmt.Errorf("remove role members failed: %w", err)
	}
	return nil
}

// SetAdminRoles 覆盖设置管理员角色
func (s *Service) SetAdminRoles(adminID uint, roles []string) error {
	if adminID == 0 {
		return ErrAdminRequired
	}
	if err := s.ready(); err != nil {
		return err
	}
	subjects := make([]string, 0, len(roles))
	for _, role := range roles {
		subject, err := roleSubject(role)
		if err != nil {
			return err
		}
		subjects = append(subjects, subject)
	}

	admin := SubjectForAdmin(adminID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy("g", 0, admin); err != nil {
		return fmt.Errorf("clear admin roles failed: %w", err)
	}
	for _, subject := range subjects {
		if err := s.register(subject); err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy("g", admin, subject); err != nil {
			return fmt.Errorf("assign admin role failed: %w", err)
		}
	}
	return nil
}

// GetAdminRoles 管理员直接分配的角色名（不含前缀）
func (s *Service) GetAdminRoles(adminID uint) ([]string, error) {
	if adminID == 0 {
		return nil, ErrAdminRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	subjects, err := s.enforcer.GetRolesForUser(SubjectForAdmin(adminID))
	if err != nil {
		return nil, fmt.Errorf("get admin roles failed: %w", err)
	}
	roles := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		if !strings.HasPrefix(subject, rolePrefix) || subject == roleRegistry {
			continue
		}
		roles = append(roles, strings.TrimPrefix(subject, rolePrefix))
	}
	sort.Strings(roles)
	return roles, nil
}

// IsBuiltinRole 是否为预置角色
func IsBuiltinRole(role string) bool {
	subject, err := roleSubject(role)
	if err != nil {
		return false
	}
	for _, builtin := range builtinRoles {
		if rolePrefix+builtin.name == subject {
			return true
		}
	}
	return false
}

// SubjectForAdmin 管理员主体标识
func SubjectForAdmin(adminID uint) string {
	return fmt.Sprintf(adminSubjectFmt, adminID)
}

// roleSubject 角色名转为 casbin 主体，接受带或不带 role: 前缀的写法
func roleSubject(role string) (string, error) {
	name := strings.TrimPrefix(strings.ReplaceAll(strings.TrimSpace(role), " ", "_"), rolePrefix)
	if name == "" {
		return "", ErrRoleRequired
	}
	subject := rolePrefix + name
	if subject == roleRegistry {
		return "", ErrReservedRole
	}
	return subject, nil
}

// NormalizeObject 授权资源统一为去掉 /api/v1 前缀的路径
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if normalized == "" {
		return "/"
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	if strings.HasPrefix(normalized, apiV1Prefix+"/") {
		return strings.TrimPrefix(normalized, apiV1Prefix)
	}
	return normalized
}

// NormalizeAction 授权动作统一为大写 HTTP 方法
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
