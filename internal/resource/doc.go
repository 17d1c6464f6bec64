// Package resource 定义可加载资源的封闭集合，以及每个资源的静态描述。
//
// 新增资源的步骤：
//  1. 在 names.go 中声明 Name 常量；
//  2. 在 internal/resource/<family>/ 下编写 Descriptor，并在 init() 中调用 MustRegister；
//  3. 在 internal/loader/resources.go 中以空白导入引入该子包。
//
// 缓存与抓取逻辑无需改动，Validate 会在启动时检查声明与注册是否一致。
package resource
